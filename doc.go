// Package mpymk batch-compiles MicroPython sources with an external
// byte-compiler, typically mpy-cross. It reproduces the classic "compile
// everything, drop boot/main, collect the rest" workflow of on-device
// projects as a [Batch]:
//
//   - enumerate the *.py files of one working directory,
//   - run the byte-compiler once per file, optionally with -O<level>,
//   - remove outputs matching an exclusion set, by default boot.mpy and
//     main.mpy, which must stay uncompiled on the device,
//   - move the remaining *.mpy files into a collection directory, by
//     default ../bytecode-compiled.
//
// mpymk is just a Go library with a thin CLI in cmd/mpymk. The byte-compiler
// is an opaque collaborator: mpymk contributes only the process plumbing, the
// filesystem steps and the reporting around them.
package mpymk
