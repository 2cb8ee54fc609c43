//go:build !amd64 && !arm64

package arch

// Other architectures are not vectorized for now.
func detectHost() Oracle {
	return Scalar()
}
