// Package moleprep acquires and prepares the native build prerequisites
// of a host package embedding the MOLE mimetic-operators C++ library.
//
// The package runs a single synchronous pipeline before the host's own
// compile step:
//
//  1. Download the Armadillo source archive (tar.xz)
//  2. Extract it into the host's vendored dependency tree
//  3. Build Armadillo with CMake (configure, then compile)
//  4. Download the MOLE repository archive (zip)
//  5. Extract it inside a scratch workspace
//  6. Stage MOLE's src/cpp sources into the host tree
//
// Every step is idempotent through a filesystem presence check: an
// existing download, extraction directory, or build directory causes
// the step to be skipped. The scratch workspace is removed on every
// exit path, success or failure.
//
// # Basic Usage
//
//	cfg := moleprep.DefaultConfig(".")
//	if err := moleprep.Prepare(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// After a successful run the host tree contains the staged MOLE
// sources under src/mole/cpp and the built Armadillo under
// src/mole/deps; the host build links against the latter in place.
//
// # Architecture
//
// The pipeline is assembled from four components, each independently
// usable:
//
//	Prepare (orchestrator)
//	├── Fetcher            (HTTP download, skip on existing file)
//	├── ExtractorRegistry
//	│   ├── TarXzExtractor (retains the archive after extraction)
//	│   └── ZipExtractor   (deletes the archive after extraction)
//	├── CMakeBuilder       (two-phase configure + compile)
//	└── Stage              (moves sources into the host tree)
//
// Failures are typed (FetchError, ExtractError, BuildError,
// StageError) and fatal; nothing is retried at this layer.
package moleprep
