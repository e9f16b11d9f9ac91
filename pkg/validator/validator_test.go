package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string   `json:"name" validate:"required,min=3"`
	Slots []string `json:"slots" validate:"dive,slot"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(sample{Name: "Ada", Slots: []string{"09:00-10:00", "2:00 PM - 3:00 PM"}}))

	err := v.Validate(sample{Name: "Al", Slots: []string{"whenever"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name must be at least 3")
	assert.Contains(t, err.Error(), "slots[0] is not a recognised time slot")
}
