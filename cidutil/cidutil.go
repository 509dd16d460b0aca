package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/pod/pod"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) (string, error) {
	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// PODCID returns the CIDv1 (raw + sha2-256) of the full-fidelity
// serialization of p. Equal PODs always have equal CIDs.
func PODCID(p *pod.POD) (string, error) {
	s, err := p.Serialize()
	if err != nil {
		return "", err
	}
	return CIDv1RawSHA256([]byte(s))
}
