package model

import "testing"

func TestValidRole(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{RoleAdmin, true},
		{RoleLab, true},
		{"manager", false},
		{"", false},
	}

	for _, tt := range tests {
		got := ValidRole(tt.role)
		if got != tt.expected {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestEnumValidators(t *testing.T) {
	if !ValidMaintenanceType(MaintenanceCalibration) || ValidMaintenanceType("cleaning") {
		t.Error("ValidMaintenanceType accepted or rejected the wrong value")
	}
	if !ValidSeverity(SeverityHigh) || ValidSeverity("critical") {
		t.Error("ValidSeverity accepted or rejected the wrong value")
	}
	if !ValidComplaintStatus(ComplaintInProgress) || ValidComplaintStatus("closed") {
		t.Error("ValidComplaintStatus accepted or rejected the wrong value")
	}
}
