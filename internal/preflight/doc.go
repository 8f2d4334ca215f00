// Package preflight provides readiness checks for the filesystem paths and
// binaries salescope depends on.
//
// These checks run in two contexts:
//   - The analyzer calls CheckDirectoryAccess on a labels directory before
//     rewriting label files in place, so a read-only mount fails before any
//     file is touched.
//   - The CLI "salescope status" command uses RunAll and CheckSystemDeps to
//     display environment health.
package preflight
