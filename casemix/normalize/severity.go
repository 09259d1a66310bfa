package normalize

import (
	"fmt"
	"strings"

	"github.com/CMSgov/casemix-app/casemix/models"
)

// Layout of the "Clinical, Functional, and Service Levels" code, e.g. C1F2S3.
// Each slot is one dimension letter followed by one digit.
const (
	clinicalStart   = 0
	functionalStart = 2
	serviceStart    = 4
	slotWidth       = 2
	codeLength      = serviceStart + slotWidth
)

// SeverityCode holds the three severity levels decoded from a level code.
type SeverityCode struct {
	Clinical   uint8
	Functional uint8
	Service    uint8
}

// slotError identifies which slot of a level code could not be decoded.
type slotError struct {
	field string
	value string
}

func (e *slotError) Error() string {
	return fmt.Sprintf("invalid %s slot '%s'", e.field, e.value)
}

// ParseSeverityCode decodes a fixed-width level code. Surrounding whitespace is ignored;
// anything else that does not match the layout exactly is rejected.
func ParseSeverityCode(code string) (SeverityCode, error) {
	code = strings.TrimSpace(code)
	if len(code) != codeLength {
		return SeverityCode{}, &slotError{field: fieldLevels, value: code}
	}

	var sc SeverityCode
	slots := []struct {
		dim   models.SeverityDimension
		start int
		dst   *uint8
	}{
		{models.Clinical, clinicalStart, &sc.Clinical},
		{models.Functional, functionalStart, &sc.Functional},
		{models.Service, serviceStart, &sc.Service},
	}
	for _, s := range slots {
		slot := code[s.start : s.start+slotWidth]
		if slot[0] != s.dim.Letter() {
			return SeverityCode{}, &slotError{field: severityField(s.dim), value: slot}
		}
		level, ok := parseLevel(s.dim, slot[1:])
		if !ok {
			return SeverityCode{}, &slotError{field: severityField(s.dim), value: slot}
		}
		*s.dst = level
	}
	return sc, nil
}

// String renders the code back into its fixed-width form.
func (sc SeverityCode) String() string {
	return fmt.Sprintf("C%dF%dS%d", sc.Clinical, sc.Functional, sc.Service)
}
