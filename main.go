// codescan - camera code scanner
// Watches a camera feed and reports the first valid QR code or barcode.
package main

import "github.com/lazyvibe/codescan/cmd"

func main() {
	cmd.Execute()
}
