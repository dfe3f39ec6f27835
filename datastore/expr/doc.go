/*
Package expr parses the SQL-like conditions accepted by the data API so that
backends without a SQL engine can honor them.

The grammar covers comparisons (=, !=, <>, <, <=, >, >=), like, in, is null,
and/or/not with parentheses, quoted strings, numbers, true/false/null and "?"
placeholders bound positionally:

	n, err := expr.Parse("name = ? and (value > 10 or tag in ('a', 'b'))", []interface{}{"c"})
	ok := expr.Eval(n, record)

ToDynamo renders a parsed condition as a DynamoDB filter expression with
#n/:v placeholders. Column-free subexpressions such as "1=1" are folded away.

SortRecords, Page and Project apply ordering, paging and projection to rows
held in memory.
*/
package expr
