package ros

const (
	maxUint32          = int64(^uint32(0))
	secondInNanosecond = 1000000000
)

// normalizeTemporal carries whole seconds out of nsec. It panics when the
// result does not fit the unsigned 32-bit second field of the wire format.
func normalizeTemporal(sec int64, nsec int64) (uint32, uint32) {
	if nsec >= secondInNanosecond {
		sec += nsec / secondInNanosecond
		nsec = nsec % secondInNanosecond
	} else if nsec < 0 {
		sec += nsec/secondInNanosecond - 1
		nsec = nsec%secondInNanosecond + secondInNanosecond
		if nsec == secondInNanosecond {
			sec++
			nsec = 0
		}
	}

	if sec < 0 || sec > maxUint32 {
		panic("time is out of range")
	}

	return uint32(sec), uint32(nsec)
}

func cmpUint64(lhs, rhs uint64) int {
	switch {
	case lhs > rhs:
		return 1
	case lhs < rhs:
		return -1
	}
	return 0
}

type temporal struct {
	Sec  uint32
	NSec uint32
}

func (t *temporal) IsZero() bool {
	return t.Sec == 0 && t.NSec == 0
}

func (t *temporal) ToSec() float64 {
	return float64(t.Sec) + float64(t.NSec)*1e-9
}

func (t *temporal) ToNSec() uint64 {
	return uint64(t.Sec)*secondInNanosecond + uint64(t.NSec)
}

func (t *temporal) FromSec(sec float64) {
	t.FromNSec(uint64(sec * 1e9))
}

func (t *temporal) FromNSec(nsec uint64) {
	t.Sec, t.NSec = normalizeTemporal(0, int64(nsec))
}

func (t *temporal) Normalize() {
	t.Sec, t.NSec = normalizeTemporal(int64(t.Sec), int64(t.NSec))
}
