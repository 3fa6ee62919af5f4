//go:build windows

package pathid

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const platformCaseInsensitive = true

func platformCaseResolver() CaseResolver {
	return longPathResolver{}
}

// longPathResolver round-trips a path through its 8.3 short form; the long
// name Windows returns carries the case stored on disk.
type longPathResolver struct{}

func (longPathResolver) ResolveCase(path string) (string, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", err
	}
	short, err := callPathAPI(p, windows.GetShortPathName)
	if err != nil {
		// 8.3 names may be disabled on the volume
		return path, nil
	}
	long, err := callPathAPI(&short[0], windows.GetLongPathName)
	if err != nil {
		return "", fmt.Errorf("GetLongPathName: %w", err)
	}
	return windows.UTF16ToString(long), nil
}

func callPathAPI(in *uint16, fn func(*uint16, *uint16, uint32) (uint32, error)) ([]uint16, error) {
	buf := make([]uint16, windows.MAX_PATH)
	for {
		n, err := fn(in, &buf[0], uint32(len(buf)))
		if err != nil {
			return nil, err
		}
		if n < uint32(len(buf)) {
			return buf[:n+1], nil
		}
		buf = make([]uint16, n)
	}
}
