package version

import "testing"

func TestIsDevelopmentVersion(t *testing.T) {
	dev := []string{"", "dev", "devel", "unknown", "devel+0123456789ab", "devel+0123456789ab+dirty"}
	for _, v := range dev {
		if !IsDevelopmentVersion(v) {
			t.Errorf("IsDevelopmentVersion(%q) = false", v)
		}
	}
	for _, v := range []string{"v0.3.0", "v1.0.0-rc.1", "0.3.0"} {
		if IsDevelopmentVersion(v) {
			t.Errorf("IsDevelopmentVersion(%q) = true", v)
		}
	}
}

func TestUpdateCommand(t *testing.T) {
	want := `go install -ldflags "-X main.Version=v0.4.0" github.com/marcus/plansync@v0.4.0`
	if got := UpdateCommand("v0.4.0"); got != want {
		t.Errorf("UpdateCommand = %q, want %q", got, want)
	}
	if got := UpdateCommand("v0.4.0-rc.1"); got == "" {
		t.Error("prerelease rejected")
	}

	// Tags end up in a shell command line.
	for _, bad := range []string{"latest", "v0.4", "v0.4.0; rm -rf ~", "v0.4.0 && echo", "$(id)"} {
		if got := UpdateCommand(bad); got != "" {
			t.Errorf("UpdateCommand(%q) = %q, want empty", bad, got)
		}
	}
}
