package validation

import "testing"

func TestIsEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last@sub.example.co.uk", true},
		{"user+tag@example.io", true},
		{"USER@EXAMPLE.COM", true},
		{"user@xn--80ak6aa92e.com", true},
		{"", false},
		{"plainaddress", false},
		{"@example.com", false},
		{"user@", false},
		{"user@localhost", false},
		{"user@example.c", false},
		{"user@example.123", false},
		{"user@-example.com", false},
		{"user@example..com", false},
		{" user@example.com", false},
		{"user@example.com ", false},
		{"User <user@example.com>", false},
		{"us er@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsEmail(tt.email); got != tt.want {
				t.Errorf("IsEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		email  string
		want   string
		wantOK bool
	}{
		{"Some.One@Example.COM", "some.one@example.com", true},
		{"john.doe+spam@gmail.com", "johndoe@gmail.com", true},
		{"John.Doe@googlemail.com", "johndoe@gmail.com", true},
		{"jane+work@outlook.com", "jane@outlook.com", true},
		{"jane+work@hotmail.co.uk", "jane@hotmail.co.uk", true},
		{"Tim+apple@iCloud.com", "tim@icloud.com", true},
		{"tim+apple@me.com", "tim@me.com", true},
		{"bob-newsletter@yahoo.com", "bob@yahoo.com", true},
		{"bob-a-b@ymail.com", "bob-a@ymail.com", true},
		{"ivan@ya.ru", "ivan@yandex.ru", true},
		{"ivan@yandex.com", "ivan@yandex.ru", true},
		{"plus+kept@example.com", "plus+kept@example.com", true},
		{"+only@gmail.com", "", false},
		{"-only@yahoo.com", "", false},
		{"missing-at", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, ok := NormalizeEmail(tt.email)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeEmail(%q) ok = %v, want %v", tt.email, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
