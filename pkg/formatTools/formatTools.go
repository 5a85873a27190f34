package formattools

import (
	"fmt"
	"strconv"
	"strings"
)

// BusinessNo is a Korean business registration number (사업자등록번호)
type BusinessNo struct {
	businessNo uint64
}

// NewBusinessNo wraps a 10 digit registration number
func NewBusinessNo(p_iBn uint64) *BusinessNo {
	return &BusinessNo{businessNo: p_iBn}
}

// ParseBusinessNo accepts the number with or without separators
func ParseBusinessNo(s string) (*BusinessNo, error) {
	digits := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s))
	if len(digits) != 10 {
		return nil, fmt.Errorf("business number must have 10 digits, got %q", s)
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("business number must be numeric, got %q", s)
	}
	return NewBusinessNo(n), nil
}

// Business Number Pattern: XXX-XX-XXXXX
func (bn BusinessNo) String() string {
	x1 := bn.businessNo / 1e7
	x2 := bn.businessNo / 1e5 % 1e2
	x3 := bn.businessNo % 1e5
	return fmt.Sprintf("%03d-%02d-%05d", x1, x2, x3)
}

// FormatBusinessNo normalizes s to XXX-XX-XXXXX, returning s unchanged when it
// is not a registration number
func FormatBusinessNo(s string) string {
	bn, err := ParseBusinessNo(s)
	if err != nil {
		return s
	}
	return bn.String()
}
