package item

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Pagination cursors are opaque to clients: the query's continuation key
// (string attributes only) is serialized as {"PK":{"S":"..."},...} and
// base64-encoded. Clients pass the token back verbatim.

// encodeCursor encodes a DynamoDB LastEvaluatedKey as an opaque token.
// An empty key encodes to the empty string.
func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	out := make(map[string]map[string]string, len(key))
	for name, value := range key {
		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("cursor attribute %q is not a string", name)
		}
		out[name] = map[string]string{"S": s.Value}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeCursor parses an opaque token back into an ExclusiveStartKey.
// Callers treat any error as "no cursor".
func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	var parsed map[string]map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("parse cursor: empty key")
	}

	key := make(map[string]types.AttributeValue, len(parsed))
	for name, value := range parsed {
		key[name] = &types.AttributeValueMemberS{Value: value["S"]}
	}
	return key, nil
}
