package mfc

// EffectiveMemory is the host memory space reached by DMA.
type EffectiveMemory interface {
	// ReadEffective returns length bytes at effective address ea.
	ReadEffective(ea uint64, length uint32) (data []byte, err error)
	// WriteEffective stores data at effective address ea.
	WriteEffective(ea uint64, data []byte) (err error)
}

const (
	HOST_PAGE_SHIFT = 12
	HOST_PAGE_SIZE  = 1 << HOST_PAGE_SHIFT
)

// HostMemory is a sparse 64-bit effective address space. Bytes never
// written read as zero.
type HostMemory struct {
	Pages map[uint64]*[HOST_PAGE_SIZE]byte
}

var _ EffectiveMemory = (*HostMemory)(nil)

// Reset drops all pages.
func (hm *HostMemory) Reset() {
	hm.Pages = nil
}

func (hm *HostMemory) page(ea uint64, create bool) (page *[HOST_PAGE_SIZE]byte) {
	page = hm.Pages[ea>>HOST_PAGE_SHIFT]
	if page == nil && create {
		if hm.Pages == nil {
			hm.Pages = make(map[uint64]*[HOST_PAGE_SIZE]byte)
		}
		page = &[HOST_PAGE_SIZE]byte{}
		hm.Pages[ea>>HOST_PAGE_SHIFT] = page
	}
	return
}

// ReadEffective implements EffectiveMemory.
func (hm *HostMemory) ReadEffective(ea uint64, length uint32) (data []byte, err error) {
	data = make([]byte, length)
	for done := 0; done < len(data); {
		offset := int(ea & (HOST_PAGE_SIZE - 1))
		span := min(HOST_PAGE_SIZE-offset, len(data)-done)
		page := hm.page(ea, false)
		if page != nil {
			copy(data[done:done+span], page[offset:])
		}
		done += span
		ea += uint64(span)
	}
	return
}

// WriteEffective implements EffectiveMemory.
func (hm *HostMemory) WriteEffective(ea uint64, data []byte) (err error) {
	for done := 0; done < len(data); {
		offset := int(ea & (HOST_PAGE_SIZE - 1))
		span := min(HOST_PAGE_SIZE-offset, len(data)-done)
		page := hm.page(ea, true)
		copy(page[offset:], data[done:done+span])
		done += span
		ea += uint64(span)
	}
	return
}
