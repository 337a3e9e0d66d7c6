// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package imports

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "no stdlib references",
			src:  "print(x)\n",
			want: "print(x)\n",
		},
		{
			name: "single module, deterministic order",
			src:  "t = time.time()\n",
			want: "import time\nt = time.time()\n",
		},
		{
			name: "multiple modules sorted",
			src:  "os.getenv(x)\nmath.floor(y)\n",
			want: "import math\nimport os\nos.getenv(x)\nmath.floor(y)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.src)
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestResolveWithOverrides(t *testing.T) {
	src := "math.floor(x)\n"
	overrides := map[string]string{"math": "from mymath import floor as math"}
	got := ResolveWithOverrides(src, overrides)
	want := "from mymath import floor as math\nmath.floor(x)\n"
	if got != want {
		t.Errorf("ResolveWithOverrides(%q) = %q, want %q", src, got, want)
	}
}

func TestIsStdlibModule(t *testing.T) {
	if !IsStdlibModule("math") {
		t.Error("IsStdlibModule(math) = false, want true")
	}
	if IsStdlibModule("mymodule") {
		t.Error("IsStdlibModule(mymodule) = true, want false")
	}
}
