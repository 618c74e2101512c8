package validator

import (
	"testing"
)

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // valid UUIDv7
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B", // valid UUIDv7 (uppercase)
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"123E4567-E89B-12D3-A456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"",                                     // empty
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

type structSample struct {
	Name     string `json:"name" validate:"required"`
	Kind     string `json:"kind" validate:"oneof=loan alimony"`
	DateFrom string `json:"date_from" validate:"datetime=2006-01-02"`
}

func TestStruct(t *testing.T) {
	ok := structSample{Name: "x", Kind: "loan", DateFrom: "2024-01-31"}
	if err := Struct(&ok); err != nil {
		t.Fatalf("Struct(valid) = %v, want nil", err)
	}

	bad := structSample{Kind: "bonus", DateFrom: "31/01/2024"}
	err := Struct(&bad)
	errs, isValidation := err.(ValidationErrors)
	if !isValidation {
		t.Fatalf("Struct(invalid) returned %T, want ValidationErrors", err)
	}
	got := errs.ToMap()
	want := map[string]string{
		"name":      "is required",
		"kind":      "must be one of: loan alimony",
		"date_from": "must be a date in YYYY-MM-DD format",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Struct(invalid)[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "phone", Message: "required"},
	}
	got := errs.Error()
	want := "email: invalid; phone: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "phone", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"email": "invalid", "phone": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
