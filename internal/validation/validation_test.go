package validation

import (
	"strings"
	"testing"

	domainErrors "handoff/internal/errors"
	"handoff/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStruct_Listing(t *testing.T) {
	tests := []struct {
		name    string
		listing models.Listing
		wantErr string
	}{
		{
			name:    "valid",
			listing: models.Listing{ID: "item-1", Title: "Lamp", DonorID: "d1"},
		},
		{
			name:    "missing ids",
			listing: models.Listing{Description: "hi"},
			wantErr: "donorId must not be empty; id must not be empty; title must not be empty",
		},
		{
			name:    "title too long",
			listing: models.Listing{ID: "item-1", Title: strings.Repeat("x", 201), DonorID: "d1"},
			wantErr: "title must not be more than 200 characters long",
		},
		{
			name:    "negative impact",
			listing: models.Listing{ID: "item-1", Title: "Lamp", DonorID: "d1", CO2Impact: -1},
			wantErr: "co2Impact must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Struct(tt.listing)
			err := v.Err()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domainErrors.ErrInvalidPayload)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestStruct_PartnerShop(t *testing.T) {
	v := New()
	v.Struct(&models.PartnerShop{ID: "shop-1", Name: "Green Corner"})
	assert.False(t, v.Valid())
	assert.Equal(t, "must not be empty", v.Errors["address"])
}

func TestCheck_FirstErrorPerFieldWins(t *testing.T) {
	v := New()
	v.Struct(models.Listing{ID: "item-1", DonorID: "d1"})
	v.Check(false, "title", "is reserved")
	v.Check(true, "donorId", "never recorded")

	assert.Equal(t, map[string]string{"title": "must not be empty"}, v.Errors)
	assert.EqualError(t, v.Err(), "title must not be empty")
}

func TestErr_NilWhenValid(t *testing.T) {
	assert.NoError(t, New().Err())
}
