package ast

import "strings"

// Kind is the syntactic category of a Node.
type Kind uint8

const (
	KindUnknown Kind = iota

	// Structure
	KindCompilationUnit
	KindPackageDef
	KindImport
	KindStaticImport
	KindClassDef
	KindInterfaceDef
	KindEnumDef
	KindRecordDef
	KindAnnotationDef
	KindObjBlock
	KindModifiers
	KindAnnotation
	KindType
	KindTypeArguments
	KindTypeParameters
	KindTypeParameter
	KindExtendsClause
	KindImplementsClause
	KindPermitsClause
	KindRecordComponents
	KindRecordComponentDef
	KindEnumConstantDef
	KindMethodDef
	KindCtorDef
	KindCompactCtorDef
	KindInstanceInit
	KindStaticInit
	KindParameters
	KindParameterDef
	KindThrows
	KindVariableDef
	KindIdent
	KindSList

	// Statements
	KindIf
	KindElse
	KindWhile
	KindDo
	KindFor
	KindForInit
	KindForCondition
	KindForIterator
	KindForEachClause
	KindSwitch
	KindCaseGroup
	KindSwitchRule
	KindCase
	KindDefault
	KindBreak
	KindContinue
	KindReturn
	KindThrow
	KindTry
	KindResourceSpecification
	KindCatch
	KindFinally
	KindSynchronized
	KindLabeledStat
	KindAssert
	KindYield
	KindEmptyStat
	KindExpr

	// Expressions
	KindQuestion
	KindLAnd
	KindLOr
	KindBAnd
	KindBOr
	KindBXor
	KindLNot
	KindAssign
	KindBinaryOp
	KindUnaryOp
	KindMethodCall
	KindNew
	KindLambda
	KindDot
	KindIndexOp
	KindTypecast
	KindInstanceof
	KindStringLiteral
	KindNumLiteral
	KindCharLiteral
	KindTrue
	KindFalse
	KindNull
	KindThis
	KindElist

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:               "UNKNOWN",
	KindCompilationUnit:       "COMPILATION_UNIT",
	KindPackageDef:            "PACKAGE_DEF",
	KindImport:                "IMPORT",
	KindStaticImport:          "STATIC_IMPORT",
	KindClassDef:              "CLASS_DEF",
	KindInterfaceDef:          "INTERFACE_DEF",
	KindEnumDef:               "ENUM_DEF",
	KindRecordDef:             "RECORD_DEF",
	KindAnnotationDef:         "ANNOTATION_DEF",
	KindObjBlock:              "OBJBLOCK",
	KindModifiers:             "MODIFIERS",
	KindAnnotation:            "ANNOTATION",
	KindType:                  "TYPE",
	KindTypeArguments:         "TYPE_ARGUMENTS",
	KindTypeParameters:        "TYPE_PARAMETERS",
	KindTypeParameter:         "TYPE_PARAMETER",
	KindExtendsClause:         "EXTENDS_CLAUSE",
	KindImplementsClause:      "IMPLEMENTS_CLAUSE",
	KindPermitsClause:         "PERMITS_CLAUSE",
	KindRecordComponents:      "RECORD_COMPONENTS",
	KindRecordComponentDef:    "RECORD_COMPONENT_DEF",
	KindEnumConstantDef:       "ENUM_CONSTANT_DEF",
	KindMethodDef:             "METHOD_DEF",
	KindCtorDef:               "CTOR_DEF",
	KindCompactCtorDef:        "COMPACT_CTOR_DEF",
	KindInstanceInit:          "INSTANCE_INIT",
	KindStaticInit:            "STATIC_INIT",
	KindParameters:            "PARAMETERS",
	KindParameterDef:          "PARAMETER_DEF",
	KindThrows:                "THROWS",
	KindVariableDef:           "VARIABLE_DEF",
	KindIdent:                 "IDENT",
	KindSList:                 "SLIST",
	KindIf:                    "LITERAL_IF",
	KindElse:                  "LITERAL_ELSE",
	KindWhile:                 "LITERAL_WHILE",
	KindDo:                    "LITERAL_DO",
	KindFor:                   "LITERAL_FOR",
	KindForInit:               "FOR_INIT",
	KindForCondition:          "FOR_CONDITION",
	KindForIterator:           "FOR_ITERATOR",
	KindForEachClause:         "FOR_EACH_CLAUSE",
	KindSwitch:                "LITERAL_SWITCH",
	KindCaseGroup:             "CASE_GROUP",
	KindSwitchRule:            "SWITCH_RULE",
	KindCase:                  "LITERAL_CASE",
	KindDefault:               "LITERAL_DEFAULT",
	KindBreak:                 "LITERAL_BREAK",
	KindContinue:              "LITERAL_CONTINUE",
	KindReturn:                "LITERAL_RETURN",
	KindThrow:                 "LITERAL_THROW",
	KindTry:                   "LITERAL_TRY",
	KindResourceSpecification: "RESOURCE_SPECIFICATION",
	KindCatch:                 "LITERAL_CATCH",
	KindFinally:               "LITERAL_FINALLY",
	KindSynchronized:          "LITERAL_SYNCHRONIZED",
	KindLabeledStat:           "LABELED_STAT",
	KindAssert:                "LITERAL_ASSERT",
	KindYield:                 "LITERAL_YIELD",
	KindEmptyStat:             "EMPTY_STAT",
	KindExpr:                  "EXPR",
	KindQuestion:              "QUESTION",
	KindLAnd:                  "LAND",
	KindLOr:                   "LOR",
	KindBAnd:                  "BAND",
	KindBOr:                   "BOR",
	KindBXor:                  "BXOR",
	KindLNot:                  "LNOT",
	KindAssign:                "ASSIGN",
	KindBinaryOp:              "BINARY_OP",
	KindUnaryOp:               "UNARY_OP",
	KindMethodCall:            "METHOD_CALL",
	KindNew:                   "LITERAL_NEW",
	KindLambda:                "LAMBDA",
	KindDot:                   "DOT",
	KindIndexOp:               "INDEX_OP",
	KindTypecast:              "TYPECAST",
	KindInstanceof:            "LITERAL_INSTANCEOF",
	KindStringLiteral:         "STRING_LITERAL",
	KindNumLiteral:            "NUM_LITERAL",
	KindCharLiteral:           "CHAR_LITERAL",
	KindTrue:                  "LITERAL_TRUE",
	KindFalse:                 "LITERAL_FALSE",
	KindNull:                  "LITERAL_NULL",
	KindThis:                  "LITERAL_THIS",
	KindElist:                 "ELIST",
}

var kindsByName map[string]Kind

func init() {
	kindsByName = make(map[string]Kind, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kindsByName[kindNames[k]] = k
	}
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// ParseKind resolves a configuration name such as "METHOD_DEF". Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[strings.ToUpper(strings.TrimSpace(name))]
	return k, ok
}

// IsTypeDef reports whether k declares a named type.
func (k Kind) IsTypeDef() bool {
	switch k {
	case KindClassDef, KindInterfaceDef, KindEnumDef, KindRecordDef, KindAnnotationDef:
		return true
	}
	return false
}

// IsMethodLike reports whether k owns an executable body of its own.
func (k Kind) IsMethodLike() bool {
	switch k {
	case KindMethodDef, KindCtorDef, KindCompactCtorDef, KindInstanceInit, KindStaticInit:
		return true
	}
	return false
}
