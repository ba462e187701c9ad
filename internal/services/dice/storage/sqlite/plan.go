package sqlite

import (
	"fmt"

	"github.com/louisbranch/bloodroll/internal/services/dice/storage"
)

type listRollsPlan struct {
	whereClause string
	params      []any
	orderClause string
	limitClause string
}

func buildListRollsPlan(req storage.ListRollsRequest) listRollsPlan {
	whereClause := "1 = 1"
	var params []any

	if req.AfterSeq > 0 {
		if req.Descending {
			whereClause += " AND seq < ?"
		} else {
			whereClause += " AND seq > ?"
		}
		params = append(params, req.AfterSeq)
	}
	if req.FilterClause != "" {
		whereClause += " AND " + req.FilterClause
		params = append(params, req.FilterParams...)
	}

	orderClause := "ORDER BY seq ASC"
	if req.Descending {
		orderClause = "ORDER BY seq DESC"
	}

	return listRollsPlan{
		whereClause: whereClause,
		params:      params,
		orderClause: orderClause,
		limitClause: fmt.Sprintf("LIMIT %d", req.PageSize+1),
	}
}
