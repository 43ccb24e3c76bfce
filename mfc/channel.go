package mfc

import (
	"fmt"
	"iter"
	"maps"
)

// Channel is a channel number.
type Channel uint8

const (
	CHANNEL_SPU_WRDEC          = Channel(7)
	CHANNEL_MFC_LSA            = Channel(16)
	CHANNEL_MFC_EAH            = Channel(17)
	CHANNEL_MFC_EAL            = Channel(18)
	CHANNEL_MFC_SIZE           = Channel(19)
	CHANNEL_MFC_TAGID          = Channel(20)
	CHANNEL_MFC_CMD            = Channel(21)
	CHANNEL_MFC_WRTAGMASK      = Channel(22)
	CHANNEL_MFC_WRTAGUPDATE    = Channel(23)
	CHANNEL_MFC_RDTAGSTAT      = Channel(24)
	CHANNEL_MFC_WRLISTSTALLACK = Channel(26)
	CHANNEL_MFC_RDATOMICSTAT   = Channel(27)
	CHANNEL_SPU_WROUTMBOX      = Channel(28)
	CHANNEL_SPU_RDINMBOX       = Channel(29)
	CHANNEL_SPU_WROUTINTRMBOX  = Channel(30)
	CHANNEL_RANDOM             = Channel(74)
)

// DMA command codes.
const (
	MFC_PUT_CMD    = 0x20
	MFC_GET_CMD    = 0x40
	MFC_SNDSIG_CMD = 0xa0
)

var _channel_names = map[Channel]string{
	CHANNEL_SPU_WRDEC:          "SPU_WrDec",
	CHANNEL_MFC_LSA:            "MFC_LSA",
	CHANNEL_MFC_EAH:            "MFC_EAH",
	CHANNEL_MFC_EAL:            "MFC_EAL",
	CHANNEL_MFC_SIZE:           "MFC_Size",
	CHANNEL_MFC_TAGID:          "MFC_TagID",
	CHANNEL_MFC_CMD:            "MFC_Cmd",
	CHANNEL_MFC_WRTAGMASK:      "MFC_WrTagMask",
	CHANNEL_MFC_WRTAGUPDATE:    "MFC_WrTagUpdate",
	CHANNEL_MFC_RDTAGSTAT:      "MFC_RdTagStat",
	CHANNEL_MFC_WRLISTSTALLACK: "MFC_WrListStallAck",
	CHANNEL_MFC_RDATOMICSTAT:   "MFC_RdAtomicStat",
	CHANNEL_SPU_WROUTMBOX:      "SPU_WrOutMbox",
	CHANNEL_SPU_RDINMBOX:       "SPU_RdInMbox",
	CHANNEL_SPU_WROUTINTRMBOX:  "SPU_WrOutIntrMbox",
	CHANNEL_RANDOM:             "SPU_RdRandom",
}

var _mfc_defines = map[string]uint32{
	"MFC_PUT_CMD":    MFC_PUT_CMD,
	"MFC_GET_CMD":    MFC_GET_CMD,
	"MFC_SNDSIG_CMD": MFC_SNDSIG_CMD,
}

func init() {
	for ch, name := range _channel_names {
		_mfc_defines[name] = uint32(ch)
	}
}

func (ch Channel) String() string {
	name, ok := _channel_names[ch]
	if !ok {
		return fmt.Sprintf("ch%d", uint8(ch))
	}
	return name
}

// Defines returns the channel numbers and DMA command codes by name.
func Defines() iter.Seq2[string, uint32] {
	return maps.All(_mfc_defines)
}
