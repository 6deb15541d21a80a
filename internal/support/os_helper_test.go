package support

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("SUPPORT_TEST_STRING", "value")
	if got := GetEnv("SUPPORT_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("GetEnv returned %q, want value", got)
	}
	if got := GetEnv("SUPPORT_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv returned %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SUPPORT_TEST_INT", "42")
	if got := GetEnvInt("SUPPORT_TEST_INT", 7); got != 42 {
		t.Fatalf("GetEnvInt returned %d, want 42", got)
	}

	t.Setenv("SUPPORT_TEST_INT_BAD", "not-a-number")
	if got := GetEnvInt("SUPPORT_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("GetEnvInt with invalid value returned %d, want 7", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("SUPPORT_TEST_FLOAT", "0.15")
	if got := GetEnvFloat("SUPPORT_TEST_FLOAT", 0.5); got != 0.15 {
		t.Fatalf("GetEnvFloat returned %v, want 0.15", got)
	}
	if got := GetEnvFloat("SUPPORT_TEST_FLOAT_MISSING", 0.5); got != 0.5 {
		t.Fatalf("GetEnvFloat returned %v, want 0.5", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("SUPPORT_TEST_LIST", "127.0.0.1, ::1 ,10.0.0.1")
	got := GetEnvList("SUPPORT_TEST_LIST", nil)
	want := []string{"127.0.0.1", "::1", "10.0.0.1"}
	if len(got) != len(want) {
		t.Fatalf("GetEnvList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetEnvList[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	t.Setenv("SUPPORT_TEST_LIST_EMPTY", " , ,")
	fallback := []string{"default"}
	if got := GetEnvList("SUPPORT_TEST_LIST_EMPTY", fallback); len(got) != 1 || got[0] != "default" {
		t.Fatalf("GetEnvList with blank value returned %v, want fallback", got)
	}
}
