//go:build windows

package charset

import "golang.org/x/sys/windows"

// cp932 is the Windows ANSI code page for Japanese.
const cp932 = 932

func hostCodePageIsCP932() bool {
	return windows.GetACP() == cp932
}
