package discount_code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscountType(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      DiscountType
		wantError bool
	}{
		{
			name:  "正常系: percentage",
			input: "percentage",
			want:  DiscountTypePercentage,
		},
		{
			name:  "正常系: fixed",
			input: "fixed",
			want:  DiscountTypeFixed,
		},
		{
			name:  "正常系: credits",
			input: "credits",
			want:  DiscountTypeCredits,
		},
		{
			name:      "異常系: 不正な値",
			input:     "bogus",
			wantError: true,
		},
		{
			name:      "異常系: 空文字",
			input:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDiscountType(tt.input)

			if tt.wantError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestDiscountType_Valid(t *testing.T) {
	assert.True(t, DiscountTypePercentage.Valid())
	assert.True(t, DiscountTypeFixed.Valid())
	assert.True(t, DiscountTypeCredits.Valid())
	assert.False(t, DiscountType("coupon").Valid())
}
