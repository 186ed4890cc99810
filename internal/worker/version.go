package worker

// Version is reported to the host in WorkerInitResponse.worker_version. It
// mirrors the source worker's use of its crate version
// (env!("CARGO_PKG_VERSION")); Go has no build-time package version, so
// this is overridden at link time instead:
//
//	go build -ldflags "-X github.com/joeycumines/azfunc-go-worker/internal/worker.Version=1.2.3"
var Version = "0.0.0-dev"
