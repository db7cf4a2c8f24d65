package dynamo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr is a rendered UpdateExpression with its placeholder maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts field->value pairs into a SET clause and the
// removed fields into a REMOVE clause. Keys are sorted so the expression is
// deterministic.
func buildUpdateExpr(set map[string]interface{}, remove ...string) (updateExpr, error) {
	ue := updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sets []string
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		sets = append(sets, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	var removes []string
	for i, k := range remove {
		nameKey := fmt.Sprintf("#r%d", i)
		ue.Names[nameKey] = k
		removes = append(removes, nameKey)
	}

	if len(sets) == 0 && len(removes) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}
	ue.Expr = strings.Join(clauses, " ")
	return ue, nil
}

// versionCondition guards an update on the optimistic-lock counter. Items
// written before versioning have no attribute and count as version 0.
func (ue *updateExpr) versionCondition(expected int64) (string, error) {
	ue.Names["#ver"] = fieldVersion
	av, err := attributevalue.Marshal(expected)
	if err != nil {
		return "", err
	}
	ue.Values[":expected"] = av
	cond := "attribute_exists(#pk) AND #ver = :expected"
	if expected == 0 {
		cond = "attribute_exists(#pk) AND (attribute_not_exists(#ver) OR #ver = :expected)"
	}
	ue.Names["#pk"] = fieldAccountID
	return cond, nil
}
