package sellerpackage

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pkg     Package
		wantErr error
	}{
		{"valid", Package{Name: "Gold", Amount: 49, ProductUploadLimit: 500, DurationDays: 30}, nil},
		{"free", Package{Name: "Starter", DurationDays: 7}, nil},
		{"empty name", Package{Name: " ", DurationDays: 30}, ErrEmptyName},
		{"negative amount", Package{Name: "X", Amount: -1, DurationDays: 30}, ErrNegativeAmount},
		{"negative limit", Package{Name: "X", ProductUploadLimit: -5, DurationDays: 30}, ErrNegativeLimit},
		{"zero duration", Package{Name: "X"}, ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.pkg.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
