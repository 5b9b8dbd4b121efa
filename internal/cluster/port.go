package cluster

// DefaultDebugPort is tried first so connection instructions stay stable
// across runs; it is high enough to rarely collide.
const DefaultDebugPort = 5679

// DefaultLocalPort is the suggested local end of the SSH tunnel.
const DefaultLocalPort = 5678
