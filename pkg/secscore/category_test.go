package secscore

import "testing"

func TestInferCategory_EmptyIsDefault(t *testing.T) {
	if got := InferCategory(nil); got != "default" {
		t.Fatalf("InferCategory(nil) = %q, want default", got)
	}
	if got := InferCategory([]string{}); got != "default" {
		t.Fatalf("InferCategory([]) = %q, want default", got)
	}
}

func TestInferCategory_CaseInsensitive(t *testing.T) {
	if got := InferCategory([]string{"CPE:/A:PHP:PHP:8.2"}); got != "php" {
		t.Fatalf("InferCategory uppercase php = %q, want php", got)
	}
}

func TestInferCategory_PriorityOrder(t *testing.T) {
	// php (rule 1) beats windows (rule 3) regardless of string order.
	cpe := []string{"cpe:/o:microsoft:windows_server:2022", "cpe:/a:php:php:8.2"}
	if got := InferCategory(cpe); got != "php" {
		t.Fatalf("InferCategory(%v) = %q, want php", cpe, got)
	}
}

func TestInferCategory_EachRule(t *testing.T) {
	cases := []struct {
		cpe  []string
		want string
	}{
		{[]string{"cpe:/a:wordpress:wordpress"}, "webapps"},
		{[]string{"cpe:/o:microsoft:windows_10"}, "windows"},
		{[]string{"cpe:/o:linux:linux_kernel"}, "linux"},
		{[]string{"cpe:/o:google:android"}, "android"},
		{[]string{"cpe:/o:apple:iphone_os"}, "ios"},
		{[]string{"cpe:/o:apple:mac_os_x"}, "macos"},
		{[]string{"cpe:/a:oracle:java"}, "java"},
		{[]string{"cpe:/a:foo:denial_of_service"}, "dos"},
		{[]string{"cpe:/a:foo:asp.net"}, "asp"},
		{[]string{"cpe:/h:vendor:firmware"}, "hardware"},
		{[]string{"cpe:/a:foo:remote_tool"}, "remote"},
		{[]string{"cpe:/a:foo:local_tool"}, "local"},
		{[]string{"cpe:/a:unknown:thing"}, "default"},
	}
	for _, tc := range cases {
		if got := InferCategory(tc.cpe); got != tc.want {
			t.Errorf("InferCategory(%v) = %q, want %q", tc.cpe, got, tc.want)
		}
	}
}
