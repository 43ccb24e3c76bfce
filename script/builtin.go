package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/ezrec/spumu/emulator"
	"github.com/ezrec/spumu/spu"
)

type builtinFunc func(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

func (s *Script) builtins() starlark.StringDict {
	table := map[string]builtinFunc{
		"pc":          builtinPc,
		"set_pc":      builtinSetPc,
		"reg":         builtinReg,
		"set_reg":     builtinSetReg,
		"ls_word":     builtinLsWord,
		"set_ls_word": builtinSetLsWord,
		"ls_read":     builtinLsRead,
		"ls_write":    builtinLsWrite,
		"mailbox":     builtinMailbox,
		"symbol":      builtinSymbol,
		"halt":        s.builtinHalt,
	}

	dict := starlark.StringDict{}
	for name, fn := range table {
		dict[name] = starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			u, ok := thread.Local(_unit_key).(*emulator.Unit)
			if !ok || u == nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), ErrNoUnit)
			}
			return fn(u, b, args, kwargs)
		})
	}

	return dict
}

// toUint32 converts a Starlark int to a word. Negative values wrap.
func toUint32(name string, value starlark.Int) (word uint32, err error) {
	i64, ok := value.Int64()
	if !ok || i64 < -(1<<31) || i64 > (1<<32)-1 {
		err = fmt.Errorf("%s: %v: %w", name, value, ErrRange)
		return
	}
	word = uint32(i64)
	return
}

func toRegister(name string, value starlark.Int) (reg uint, err error) {
	i64, ok := value.Int64()
	if !ok || i64 < 0 || i64 >= spu.REGISTER_COUNT {
		err = fmt.Errorf("%s: register %v: %w", name, value, ErrRange)
		return
	}
	reg = uint(i64)
	return
}

func builtinPc(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(u.Pc)), nil
}

func builtinSetPc(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr starlark.Int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
		return nil, err
	}
	pc, err := toUint32(b.Name(), addr)
	if err != nil {
		return nil, err
	}
	u.Pc = pc
	return starlark.None, nil
}

func builtinReg(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var n starlark.Int
	lane := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n", &n, "lane?", &lane); err != nil {
		return nil, err
	}
	reg, err := toRegister(b.Name(), n)
	if err != nil {
		return nil, err
	}
	if lane < 0 || lane >= spu.REGISTER_LANES {
		return nil, fmt.Errorf("%s: lane %d: %w", b.Name(), lane, ErrRange)
	}
	return starlark.MakeUint64(uint64(u.Reg.Words(reg)[lane])), nil
}

func builtinSetReg(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var n, value starlark.Int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &n, &value); err != nil {
		return nil, err
	}
	reg, err := toRegister(b.Name(), n)
	if err != nil {
		return nil, err
	}
	word, err := toUint32(b.Name(), value)
	if err != nil {
		return nil, err
	}
	u.Reg.SetWord(reg, word)
	return starlark.None, nil
}

func builtinLsWord(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr starlark.Int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
		return nil, err
	}
	offset, err := toUint32(b.Name(), addr)
	if err != nil {
		return nil, err
	}
	word, err := u.Ls.Word(offset)
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(word)), nil
}

func builtinSetLsWord(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr, value starlark.Int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &value); err != nil {
		return nil, err
	}
	offset, err := toUint32(b.Name(), addr)
	if err != nil {
		return nil, err
	}
	word, err := toUint32(b.Name(), value)
	if err != nil {
		return nil, err
	}
	if err = u.Ls.SetWord(offset, word); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func builtinLsRead(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr, length starlark.Int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &length); err != nil {
		return nil, err
	}
	offset, err := toUint32(b.Name(), addr)
	if err != nil {
		return nil, err
	}
	size, err := toUint32(b.Name(), length)
	if err != nil {
		return nil, err
	}
	data, err := u.Ls.Read(offset, size)
	if err != nil {
		return nil, err
	}
	return starlark.Bytes(data), nil
}

func builtinLsWrite(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr starlark.Int
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &value); err != nil {
		return nil, err
	}
	offset, err := toUint32(b.Name(), addr)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch value := value.(type) {
	case starlark.Bytes:
		data = []byte(value)
	case starlark.String:
		data = []byte(value)
	default:
		return nil, fmt.Errorf("%s: got %s, want bytes or string", b.Name(), value.Type())
	}

	if err = u.Ls.Write(offset, data); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func builtinMailbox(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	values := make([]uint32, len(args))
	for n, arg := range args {
		value, ok := arg.(starlark.Int)
		if !ok {
			return nil, fmt.Errorf("%s: got %s, want int", b.Name(), arg.Type())
		}
		word, err := toUint32(b.Name(), value)
		if err != nil {
			return nil, err
		}
		values[n] = word
	}
	u.Mfc.Mailbox.Push(values...)
	return starlark.None, nil
}

func builtinSymbol(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	if u.Symbols == nil {
		return starlark.None, nil
	}
	addr, ok := u.Symbols.Lookup(name)
	if !ok {
		return starlark.None, nil
	}
	return starlark.MakeUint64(uint64(addr)), nil
}

func (s *Script) builtinHalt(u *emulator.Unit, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	s.halted = true
	return nil, emulator.ErrHalt
}
