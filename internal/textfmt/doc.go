// Package textfmt translates between protocol units and the
// line-oriented text form.
//
// One unit per line:
//
//	FIT_PROTOCOL_VERSION, 32
//	FIT_PROFILE_VERSION, 21141
//	DEF: M_TYPE,0, M_NUM,0, FIELDS,1, DEV_FIELDS,0,,0,1,2,,
//	# file_id: type(0)
//	DATA: CT,0, M_TYPE,00,,004,
//	END,
//
// The keyword ends at the first ':' or ','. The rest of the line is split
// on ',' and empty tokens are skipped. Lines starting with '#' are
// comments.
package textfmt
