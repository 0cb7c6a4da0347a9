/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package demo

import (
	"fmt"
	"time"

	"github.com/google/tabula/core/columns"
)

// Transaction generator configuration - easily modifiable cardinality
const (
	DefaultTransactions = 100_000
	numUsers            = 8_000 // High cardinality
	numProducts         = 500   // Medium cardinality
	numCategories       = 20    // Low cardinality
)

// TransactionFields is the field order of the transactions table.
var TransactionFields = []string{"txn_id", "user", "product", "category", "amount", "status", "is_flagged", "created_at"}

var statuses = []string{"pending", "completed", "cancelled", "processing"}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// GenerateTransactions returns n deterministic transaction rows.
func GenerateTransactions(n int) []columns.Row {
	rows := make([]columns.Row, n)
	for i := range rows {
		// Category 0 is over-represented
		category := i % numCategories
		if i%7 == 0 {
			category = 0
		}
		rows[i] = columns.Row{
			"txn_id":     i,
			"user":       fmt.Sprintf("user-%04d", i%numUsers),
			"product":    fmt.Sprintf("product-%03d", i%numProducts),
			"category":   fmt.Sprintf("category-%02d", category),
			"amount":     float64(10+(i*37)%1000) + float64(i%100)/100,
			"status":     statuses[i%len(statuses)],
			"is_flagged": i%97 == 0,
			"created_at": epoch.Add(time.Duration(i) * 17 * time.Minute),
		}
	}
	return rows
}
