package services

import (
	"database/sql"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	settingsDB   *sql.DB
	settingsMock sqlmock.Sqlmock
)

func settingsSetUp() {
	settingsDB, settingsMock, _ = sqlmock.New()
}

func settingsTearDown() {
	settingsDB.Close()
}

var settingsIt = beforeeach.Create(settingsSetUp, settingsTearDown)

func TestGetAutoApproval(t *testing.T) {
	settingsIt(func() {
		service := NewSettingsService(NewDatabaseServiceFromDB(settingsDB))

		testCases := []struct {
			name     string
			value    string
			missing  bool
			queryErr bool

			expected    bool
			expectError bool
		}{
			{name: "Enabled", value: "1", expected: true},
			{name: "Disabled", value: "0", expected: false},
			{name: "Never set defaults to disabled", missing: true, expected: false},
			{name: "Store error surfaces", queryErr: true, expectError: true},
		}

		for _, testCase := range testCases {
			expect := settingsMock.ExpectQuery("SELECT value FROM settings WHERE name = \\?").
				WithArgs(SettingAutoApproval)
			switch {
			case testCase.queryErr:
				expect.WillReturnError(fmt.Errorf("connection reset"))
			case testCase.missing:
				expect.WillReturnError(sql.ErrNoRows)
			default:
				expect.WillReturnRows(sqlmock.NewRows([]string{"value"}).FromCSVString(testCase.value))
			}

			enabled, err := service.GetAutoApproval()
			if testCase.expectError != (err != nil) {
				t.Errorf("%s: expected error: %v, got error: %v", testCase.name, testCase.expectError, err)
			}
			if enabled != testCase.expected {
				t.Errorf("%s: expected %v, got %v", testCase.name, testCase.expected, enabled)
			}
		}
	})
}

func TestSetAutoApproval(t *testing.T) {
	settingsIt(func() {
		service := NewSettingsService(NewDatabaseServiceFromDB(settingsDB))

		settingsMock.ExpectExec("INSERT INTO settings \\(name, value\\) VALUES \\(\\?, \\?\\) ON DUPLICATE KEY UPDATE value = \\?").
			WithArgs(SettingAutoApproval, "1", "1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := service.SetAutoApproval(true); err != nil {
			t.Errorf("unexpected error %v", err)
		}

		settingsMock.ExpectExec("INSERT INTO settings \\(name, value\\) VALUES \\(\\?, \\?\\) ON DUPLICATE KEY UPDATE value = \\?").
			WithArgs(SettingAutoApproval, "0", "0").
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := service.SetAutoApproval(false); err != nil {
			t.Errorf("unexpected error %v", err)
		}
	})
}
