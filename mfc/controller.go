// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package mfc

import (
	"log"
	"math/rand"

	"github.com/ezrec/spumu/spu"
)

// ChannelState holds the values latched by channel writes.
type ChannelState struct {
	LSA        uint32 // Local Store address of the next DMA.
	EAH        uint32 // Effective address, high word.
	EAL        uint32 // Effective address, low word.
	Size       uint32 // Transfer size in bytes.
	TagID      uint32 // Tag group of the next DMA.
	TagMask    uint32 // Tag groups of interest.
	TagStat    uint32 // Tag groups complete.
	AtomicStat uint32 // Atomic command status. Never set by any modeled command.
}

// EffectiveAddress is the 64-bit DMA target.
func (cs *ChannelState) EffectiveAddress() uint64 {
	return (uint64(cs.EAH) << 32) | uint64(cs.EAL)
}

// Controller is the Memory Flow Controller. Every DMA completes before
// the channel write that issued it returns, so every tag group is always
// complete.
type Controller struct {
	Verbose bool // If set, logs every channel access.

	ChannelState

	Mailbox Mailbox         // Inbound mailbox, filled by the host.
	Memory  EffectiveMemory // Host memory reached by DMA.
	Rand    *rand.Rand      // Source for the random channel. nil uses math/rand.
}

// NewController creates a controller with DMA access to memory.
func NewController(memory EffectiveMemory) (mfc *Controller) {
	mfc = &Controller{
		Memory: memory,
	}
	return
}

// Reset clears the channel state and the mailbox.
func (mfc *Controller) Reset() {
	mfc.ChannelState = ChannelState{}
	mfc.Mailbox.Clear()
}

// WriteChannel performs a `wrch` of value to ch.
func (mfc *Controller) WriteChannel(st *spu.State, ch Channel, value uint32) (err error) {
	if mfc.Verbose {
		log.Printf("mfc: wrch %v 0x%08x", ch, value)
	}

	switch ch {
	case CHANNEL_SPU_WRDEC:
		// padding
	case CHANNEL_MFC_LSA:
		mfc.LSA = value
	case CHANNEL_MFC_EAH:
		mfc.EAH = value
	case CHANNEL_MFC_EAL:
		mfc.EAL = value
	case CHANNEL_MFC_SIZE:
		mfc.Size = value
	case CHANNEL_MFC_TAGID:
		mfc.TagID = value
	case CHANNEL_MFC_CMD:
		err = mfc.HandleCommand(st, value)
	case CHANNEL_MFC_WRTAGMASK:
		mfc.TagMask = value
	case CHANNEL_MFC_WRTAGUPDATE:
		mfc.HandleTagUpdate(value)
	case CHANNEL_MFC_WRLISTSTALLACK, CHANNEL_MFC_RDATOMICSTAT:
		// unmodeled
	case CHANNEL_SPU_WROUTMBOX:
		err = mfc.WriteMbox(st, value, false)
	case CHANNEL_SPU_WROUTINTRMBOX:
		err = mfc.WriteMbox(st, value, true)
	default:
		err = &ErrChannel{Pc: st.Pc, Channel: ch}
	}

	return
}

// ReadChannel performs a `rdch` of ch.
func (mfc *Controller) ReadChannel(st *spu.State, ch Channel) (value uint32, err error) {
	switch ch {
	case CHANNEL_MFC_RDTAGSTAT:
		value = mfc.TagStat
	case CHANNEL_MFC_RDATOMICSTAT:
		value = mfc.AtomicStat
	case CHANNEL_RANDOM:
		value = mfc.random()
	case CHANNEL_SPU_RDINMBOX:
		var ok bool
		value, ok = mfc.Mailbox.Pop()
		if !ok {
			err = &ErrMailbox{Pc: st.Pc}
		}
	default:
		err = &ErrChannel{Pc: st.Pc, Channel: ch}
	}

	if mfc.Verbose && err == nil {
		log.Printf("mfc: rdch %v 0x%08x", ch, value)
	}

	return
}

// ReadChannelCount performs a `rchcnt` of ch.
func (mfc *Controller) ReadChannelCount(st *spu.State, ch Channel) (count uint32, err error) {
	switch ch {
	case CHANNEL_MFC_WRTAGUPDATE,
		CHANNEL_MFC_RDTAGSTAT,
		CHANNEL_MFC_RDATOMICSTAT,
		CHANNEL_SPU_WROUTMBOX,
		CHANNEL_SPU_WROUTINTRMBOX,
		CHANNEL_RANDOM:
		count = 1
	case CHANNEL_SPU_RDINMBOX:
		count = uint32(mfc.Mailbox.Len())
	default:
		err = &ErrChannel{Pc: st.Pc, Channel: ch}
	}

	return
}

// WriteMbox traps an outbound mailbox write. It always returns an
// *ErrMboxWrite for the host to service.
func (mfc *Controller) WriteMbox(st *spu.State, value uint32, interrupt bool) error {
	return &ErrMboxWrite{Pc: st.Pc, Value: value, Interrupt: interrupt}
}

// HandleCommand runs a DMA command against the latched channel state.
func (mfc *Controller) HandleCommand(st *spu.State, cmd uint32) (err error) {
	ea := mfc.EffectiveAddress()

	if mfc.Verbose {
		log.Printf("mfc: cmd 0x%02x LSA=%08x EA=%08x:%08x Size=%08x TagID=%08x",
			cmd, mfc.LSA, mfc.EAH, mfc.EAL, mfc.Size, mfc.TagID)
	}

	switch cmd {
	case MFC_GET_CMD, MFC_PUT_CMD:
		err = mfc.transfer(st, cmd, ea)
		if err != nil {
			err = &ErrDMA{Pc: st.Pc, Command: cmd, Err: err}
		}
	default:
		err = &ErrCommand{Pc: st.Pc, Command: cmd}
	}

	return
}

func (mfc *Controller) transfer(st *spu.State, cmd uint32, ea uint64) (err error) {
	if mfc.Memory == nil {
		err = ErrNoMemory
		return
	}

	// The Local Store range is checked before the host is asked for data.
	err = st.Ls.Check(mfc.LSA, uint64(mfc.Size))
	if err != nil {
		return
	}

	var data []byte
	if cmd == MFC_GET_CMD {
		data, err = mfc.Memory.ReadEffective(ea, mfc.Size)
		if err != nil {
			return
		}
		if len(data) != int(mfc.Size) {
			err = ErrShortTransfer
			return
		}
		err = st.Ls.Write(mfc.LSA, data)
		return
	}

	data, err = st.Ls.Read(mfc.LSA, mfc.Size)
	if err != nil {
		return
	}
	err = mfc.Memory.WriteEffective(ea, data)
	return
}

// HandleTagUpdate completes a tag status update. Every tag group named in
// TagMask is reported complete, whatever update type is requested.
func (mfc *Controller) HandleTagUpdate(update uint32) {
	mfc.TagStat = mfc.TagMask
}

func (mfc *Controller) random() uint32 {
	if mfc.Rand != nil {
		return uint32(mfc.Rand.Intn(256))
	}
	return uint32(rand.Intn(256))
}
