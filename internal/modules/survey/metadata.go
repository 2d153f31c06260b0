package survey

import (
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/earthnet/frame-survey/internal/domain"
)

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// TokenMetadata is the document pinned to IPFS and referenced by the token URI.
type TokenMetadata struct {
	Name       string      `json:"name"`
	Image      string      `json:"image"`
	TokenID    int64       `json:"token_id"`
	Username   string      `json:"username"`
	Survey     string      `json:"survey"`
	Attributes []Attribute `json:"attributes"`
}

// BuildMetadata assembles the token document. Responses must have their
// Question loaded; one attribute is emitted per response, in slice order.
func BuildMetadata(task *types.Task, cluster *types.Cluster, responses []*types.Response, username string, ordinal int64) (TokenMetadata, error) {
	if task == nil || cluster == nil {
		return TokenMetadata{}, fmt.Errorf("metadata needs task and cluster")
	}
	md := TokenMetadata{
		Name:       cluster.Name,
		Image:      IPFSURI(cluster.ImageIPFSHash),
		TokenID:    ordinal,
		Username:   username,
		Survey:     task.Title,
		Attributes: make([]Attribute, 0, len(responses)),
	}
	for _, r := range responses {
		if r == nil {
			continue
		}
		if r.Question == nil {
			return TokenMetadata{}, fmt.Errorf("response %d has no question loaded", r.ID)
		}
		md.Attributes = append(md.Attributes, Attribute{
			TraitType: r.Question.Text,
			Value:     AgreementLabel(r.Value),
		})
	}
	return md, nil
}

func (m TokenMetadata) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Filename is the name the metadata document is pinned under.
func (m TokenMetadata) Filename(recipient string) string {
	return fmt.Sprintf("%s-%s.json", recipient, m.Name)
}

func IPFSURI(hash string) string {
	return "ipfs://" + strings.TrimSpace(hash)
}
