// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dump

import (
	"fmt"
	"strings"
)

const (
	insertPrefix = "INSERT INTO "
	valuesMarker = " VALUES "
)

// ParseInsert parses a dump line of the form
//
//	INSERT INTO `table` VALUES (...),(...);
//
// Lines that are not INSERT statements return ok == false and no error.
func ParseInsert(line string) (table string, rows [][]string, ok bool, err error) {
	if !strings.HasPrefix(line, insertPrefix) {
		return "", nil, false, nil
	}

	head, values, found := strings.Cut(line[len(insertPrefix):], valuesMarker)
	if !found {
		return "", nil, true, &ParseError{Offset: len(insertPrefix), Reason: "missing VALUES"}
	}

	// "`term`" or "`term` (`id`,`name`)": the table is the first token.
	fields := strings.Fields(head)
	if len(fields) > 0 {
		table = strings.Trim(fields[0], "`")
	}
	if table == "" {
		return "", nil, true, &ParseError{Offset: len(insertPrefix), Reason: "missing table name"}
	}

	rows, err = ParseValues(values)
	if err != nil {
		return table, nil, true, fmt.Errorf("table %s: %w", table, err)
	}
	return table, rows, true, nil
}
