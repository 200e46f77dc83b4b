package enums

import "fmt"

// LinkParentType names the child record type owning a dynamic link row.
type LinkParentType string

const (
	LinkParentContact LinkParentType = "Contact"
	LinkParentAddress LinkParentType = "Address"
)

var validLinkParentTypes = []LinkParentType{
	LinkParentContact,
	LinkParentAddress,
}

// String implements fmt.Stringer.
func (l LinkParentType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LinkParentType.
func (l LinkParentType) IsValid() bool {
	for _, candidate := range validLinkParentTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLinkParentType converts raw input into a LinkParentType.
func ParseLinkParentType(value string) (LinkParentType, error) {
	for _, candidate := range validLinkParentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link parent type %q", value)
}

// LinkDoctypeCustomer is the link target used for customer-owned contacts and addresses.
const LinkDoctypeCustomer = "Customer"
