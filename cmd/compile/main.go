// Command compile is the process entry point: argument parsing, source
// file I/O, build/ directory setup, and exit-code selection. It owns no
// compiler logic; it only wires the scanner, the parser, and the tree
// serializer together.
package main

func main() {
	Execute()
}
