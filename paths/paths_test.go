// This file is part of TK2000emu.
//
// TK2000emu is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// TK2000emu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with TK2000emu.  If not, see <https://www.gnu.org/licenses/>.

package paths_test

import (
	"os"
	"path"
	"testing"

	"github.com/gvelo/tk2000/paths"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestResourcePathUsesLocalDirWhenPresent(t *testing.T) {
	chdir(t, t.TempDir())

	if err := os.Mkdir(".tk2000emu", 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := paths.ResourcePath("prefs.tk2000")
	want := path.Join(".tk2000emu", "prefs.tk2000")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResourcePathFallsBackToConfigDirWhenAbsent(t *testing.T) {
	chdir(t, t.TempDir())

	cfgDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgDir)

	got := paths.ResourcePath("prefs.tk2000")
	want := path.Join(cfgDir, "tk2000emu", "prefs.tk2000")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResourcePathWithNoResourceComponents(t *testing.T) {
	chdir(t, t.TempDir())

	if err := os.Mkdir(".tk2000emu", 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := paths.ResourcePath()
	if got != ".tk2000emu" {
		t.Errorf("got %q, want %q", got, ".tk2000emu")
	}
}
