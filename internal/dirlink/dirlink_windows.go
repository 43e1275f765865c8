//go:build windows

package dirlink

import "golang.org/x/sys/windows"

// Lets non-admin users create links when developer mode is on.
const symbolicLinkFlagAllowUnprivilegedCreate = 0x2

func symlinkDir(target, link string) error {
	linkp, err := windows.UTF16PtrFromString(link)
	if err != nil {
		return err
	}
	targetp, err := windows.UTF16PtrFromString(target)
	if err != nil {
		return err
	}
	return windows.CreateSymbolicLink(linkp, targetp,
		windows.SYMBOLIC_LINK_FLAG_DIRECTORY|symbolicLinkFlagAllowUnprivilegedCreate)
}
