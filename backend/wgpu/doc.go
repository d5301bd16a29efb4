// Package wgpu provides a GPU filter renderer backend using WebGPU.
//
// Importing the package registers the renderer with imgbatch:
//
//	import _ "github.com/gogpu/imgbatch/backend/wgpu"
//
// GPU device initialization is lazy: nothing touches the GPU until the
// first filter application, and a host without a usable adapter
// transparently falls back to CPU filtering.
package wgpu
