package types

import (
	"encoding/binary"
	"hash/fnv"
)

// hasher accumulates the structural hash of a term. Children are hashed by
// their own (already computed) Hash, so hashing a term is linear in its
// immediate fields only.
type hasher struct {
	buf []byte
}

func newHasher(tag string) *hasher {
	h := &hasher{buf: make([]byte, 0, 64)}
	h.buf = append(h.buf, tag...)
	return h
}

func (h *hasher) u64(v uint64) *hasher {
	h.buf = binary.LittleEndian.AppendUint64(h.buf, v)
	return h
}

func (h *hasher) u32(v uint32) *hasher { return h.u64(uint64(v)) }

func (h *hasher) str(s string) *hasher {
	h.u64(uint64(len(s)))
	h.buf = append(h.buf, s...)
	return h
}

func (h *hasher) bool(b bool) *hasher {
	if b {
		h.buf = append(h.buf, 1)
	} else {
		h.buf = append(h.buf, 0)
	}
	return h
}

func (h *hasher) ty(t Ty) *hasher {
	if t == nil {
		return h.u64(0)
	}
	return h.u64(t.Hash())
}

func (h *hasher) tys(ts []Ty) *hasher {
	h.u64(uint64(len(ts)))
	for _, t := range ts {
		h.ty(t)
	}
	return h
}

func (h *hasher) region(r Region) *hasher {
	h.buf = append(h.buf, byte(r.Kind), byte(r.Space))
	h.u32(r.Index).u32(r.Depth).u32(r.Scope)
	return h.str(r.Name)
}

func (h *hasher) substs(s *Substs) *hasher {
	if s == nil {
		return h.u64(0)
	}
	for _, space := range AllSpaces {
		h.tys(s.Types.Slice(space))
	}
	h.bool(s.Regions.Erased)
	if !s.Regions.Erased {
		for _, space := range AllSpaces {
			regions := s.Regions.Regions.Slice(space)
			h.u64(uint64(len(regions)))
			for _, r := range regions {
				h.region(r)
			}
		}
	}
	return h
}

func (h *hasher) traitRef(t TraitRef) *hasher {
	return h.u32(uint32(t.Def)).substs(t.Substs)
}

func (h *hasher) fnSig(s FnSig) *hasher {
	h.tys(s.Inputs).bool(s.Output.Diverging).ty(s.Output.Ty)
	return h.bool(s.Variadic)
}

func (h *hasher) sum() uint64 {
	f := fnv.New64a()
	_, _ = f.Write(h.buf)
	return f.Sum64()
}
