package domain

type Category int

const (
	CategoryOther Category = iota
	CategorySupermarket
	CategoryHardware
	CategoryPharmacy
)

func (c Category) String() string {
	switch c {
	case CategorySupermarket:
		return "supermarket"
	case CategoryHardware:
		return "hardware"
	case CategoryPharmacy:
		return "pharmacy"
	default:
		return "other"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
