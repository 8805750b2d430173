// Package gateway implements the storage-gateway HTTP client: directory
// listings via POST /list and raw content fetches via signed URLs. Signed-URL
// fetches tolerate exactly one redirect and drop gateway credentials when the
// redirect leaves the original host.
package gateway
