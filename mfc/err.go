package mfc

import (
	"errors"

	"github.com/ezrec/spumu/translate"
)

var f = translate.From

var (
	ErrUnknownChannel   = errors.New(f("unknown channel"))
	ErrUnknownCommand   = errors.New(f("unknown command"))
	ErrUnknownTagUpdate = errors.New(f("unknown tag update"))
	ErrMboxTrap         = errors.New(f("mailbox write"))
	ErrMailboxEmpty     = errors.New(f("mailbox empty"))
	ErrNoMemory         = errors.New(f("no effective memory"))
	ErrShortTransfer    = errors.New(f("short transfer"))
)

// ErrMailbox is a read of the inbound mailbox while it is empty.
type ErrMailbox struct {
	Pc uint32
}

func (err *ErrMailbox) Error() string {
	return f("pc=%08x mailbox empty", err.Pc)
}

func (err *ErrMailbox) Unwrap() error {
	return ErrMailboxEmpty
}

// ErrDMA is a failed DMA transfer.
type ErrDMA struct {
	Pc      uint32
	Command uint32
	Err     error
}

func (err *ErrDMA) Error() string {
	return f("pc=%08x dma 0x%02x: %v", err.Pc, err.Command, err.Err)
}

func (err *ErrDMA) Unwrap() error {
	return err.Err
}

// ErrChannel is an access to a channel the controller does not model.
type ErrChannel struct {
	Pc      uint32
	Channel Channel
}

func (err *ErrChannel) Error() string {
	return f("pc=%08x channel=%d", err.Pc, uint8(err.Channel))
}

func (err *ErrChannel) Unwrap() error {
	return ErrUnknownChannel
}

// ErrCommand is a DMA command code the controller does not model.
type ErrCommand struct {
	Pc      uint32
	Command uint32
}

func (err *ErrCommand) Error() string {
	return f("pc=%08x command=%02x", err.Pc, err.Command)
}

func (err *ErrCommand) Unwrap() error {
	return ErrUnknownCommand
}

// ErrMboxWrite is the trap raised by an outbound mailbox write. It is not
// a failure: the host services the message and resumes the unit.
type ErrMboxWrite struct {
	Pc        uint32
	Value     uint32
	Interrupt bool
}

func (err *ErrMboxWrite) Error() string {
	return f("pc=%08x data=%08x, int %v", err.Pc, err.Value, err.Interrupt)
}

func (err *ErrMboxWrite) Unwrap() error {
	return ErrMboxTrap
}
