package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"toYOTA", "Toyota"},
		{"civic type r", "Civic Type R"},
		{"  honda  ", "Honda"},
		{"", ""},
		{"   ", ""},
		{"land  rover", "Land  Rover"},
		{"MERCEDES-BENZ", "Mercedes-benz"},
		{"škoda", "Škoda"},
	}
	for _, tt := range tests {
		if got := Text(tt.in); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextIdempotent(t *testing.T) {
	for _, in := range []string{"toYOTA", "civic type r", "Land  Rover", "bmw x5"} {
		once := Text(in)
		if twice := Text(once); twice != once {
			t.Errorf("Text(Text(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestUpperCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" wba12345 ", "WBA12345"},
		{"1hgcm82633a004352", "1HGCM82633A004352"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UpperCase(tt.in); got != tt.want {
			t.Errorf("UpperCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
