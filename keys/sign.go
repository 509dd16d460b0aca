package keys

import (
	"fmt"

	"xdao.co/pod/pod"
)

// SignEntries signs entries with a raw private key.
func SignEntries(entries pod.Entries, privateKey []byte) (*pod.POD, error) {
	encoded, err := pod.EncodePrivateKey(privateKey, pod.EncodingHex)
	if err != nil {
		return nil, err
	}
	p, err := pod.Sign(entries, encoded)
	if err != nil {
		return nil, fmt.Errorf("sign entries: %w", err)
	}
	return p, nil
}
