// Package ast defines the abstract syntax tree consumed by the metadata compiler.
//
// The tree is produced by an external TSDL front-end. This package only fixes
// its shape: a closed set of node tags (Type) and a generic Node carrying a tag,
// optional token text, children and a source position.
//
// Shape contracts relied on by internal/metadata:
//
//	ROOT                  DECLARATION | TRACE | STREAM | EVENT | CLOCK | ENV | CALLSITE ...
//	DECLARATION           TYPEDEF | TYPEALIAS | TYPE_SPECIFIER_LIST
//	TRACE/STREAM/EVENT    TYPEDEF | TYPEALIAS | CTF_EXPRESSION_VAL | CTF_EXPRESSION_TYPE ...
//	CLOCK/ENV/CALLSITE    CTF_EXPRESSION_VAL ...
//	CTF_EXPRESSION_*      CTF_LEFT CTF_RIGHT
//	CTF_LEFT              UNARY_EXPRESSION_STRING (DOT|ARROW)*
//	CTF_RIGHT             unary expression chain | TYPE_SPECIFIER_LIST
//	UNARY_EXPRESSION_DEC  DECIMAL_LITERAL SIGN*   (HEX/OCT likewise)
//	UNARY_EXPRESSION_STRING        IDENTIFIER (or keyword token)
//	UNARY_EXPRESSION_STRING_QUOTES STRING_LITERAL
//	DOT/ARROW             UNARY_EXPRESSION_STRING
//	TYPEDEF               TYPE_DECLARATOR_LIST TYPE_SPECIFIER_LIST
//	TYPEALIAS             TYPEALIAS_TARGET TYPEALIAS_ALIAS
//	TYPEALIAS_TARGET      TYPE_SPECIFIER_LIST TYPE_DECLARATOR_LIST?
//	TYPEALIAS_ALIAS       TYPE_SPECIFIER_LIST? TYPE_DECLARATOR_LIST?
//	TYPE_SPECIFIER_LIST   INTEGER | FLOATING_POINT | STRING | STRUCT | VARIANT | ENUM | keyword/IDENTIFIER ...
//	TYPE_DECLARATOR_LIST  TYPE_DECLARATOR ...
//	TYPE_DECLARATOR       POINTER* IDENTIFIER? LENGTH*
//	POINTER               CONSTTOK?
//	LENGTH                unary expression chain
//	INTEGER/FLOATING_POINT/STRING  CTF_EXPRESSION_VAL ...
//	STRUCT                STRUCT_NAME? STRUCT_BODY? ALIGN?
//	STRUCT_BODY           SV_DECLARATION | TYPEDEF | TYPEALIAS ...
//	SV_DECLARATION        TYPE_SPECIFIER_LIST TYPE_DECLARATOR_LIST
//	VARIANT               VARIANT_NAME? VARIANT_TAG? VARIANT_BODY?
//	ENUM                  ENUM_NAME? ENUM_CONTAINER_TYPE? ENUM_BODY?
//	ENUM_CONTAINER_TYPE   TYPE_SPECIFIER_LIST
//	ENUM_BODY             ENUM_ENUMERATOR ...
//	ENUM_ENUMERATOR       unary string (ENUM_VALUE | ENUM_VALUE_RANGE)?
//	STRUCT_NAME/VARIANT_NAME/VARIANT_TAG/ENUM_NAME  IDENTIFIER
//
// Trees can be built in Go with the constructors in build.go or decoded from
// their YAML/JSON serialization with Decode and LoadFile.
package ast
