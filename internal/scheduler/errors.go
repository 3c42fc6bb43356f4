package scheduler

import (
	"fmt"
	"strings"
)

// HardCapError lists the players a rejected match would have skipped past
// the wait cap. It matches ErrHardCap with errors.Is.
type HardCapError struct {
	AtRisk []string
}

func (e *HardCapError) Error() string {
	return fmt.Sprintf("%s: %s", ErrHardCap.Error(), strings.Join(e.AtRisk, ", "))
}

func (e *HardCapError) Unwrap() error { return ErrHardCap }
