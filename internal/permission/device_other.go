//go:build !unix

package permission

func readable(string) bool {
	return true
}
