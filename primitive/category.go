package primitive

type CategoryEnum int

type ConversionPair struct {
	From, To KindEnum
}

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with precision loss
	CategoryTextNumber                            // int, uint, float <-> string: textual number representation
	CategoryNumericBool                           // int <-> bool: 0, 1 representation of boolean values
	CategoryTextualBool                           // string <-> bool: strconv.ParseBool representation of boolean values
	CategoryDatetime                              // string(RFC3339Nano) <-> time.Time: textual date and time representation
	CategoryTimestamp                             // int(Unix seconds) <-> time.Time: Unix timestamp representation
	CategoryDuration                              // string(2h45m) <-> time.Duration: textual duration representation
	CategoryNanoseconds                           // int(nanoseconds) <-> time.Duration: numerical duration representation
	CategoryEnumString                            // string <-> enum: named integer and string types
	CategoryIdentifier                            // string <-> uuid.UUID: canonical textual UUID representation

	CategoryAll  CategoryEnum = (1 << iota) - 1 //all categories combined
	CategoryNone CategoryEnum = 0               // no categories selected
)

var conversionPairs map[CategoryEnum]map[ConversionPair]struct{}

func init() {
	conversionPairs = make(map[CategoryEnum]map[ConversionPair]struct{})

	conversionPairs[CategorySafeNumber] = safeNumberConversionPairs()
	conversionPairs[CategoryUnsafeNumber] = pairsOf(KindEnum.IsNumber, KindEnum.IsNumber, func(p ConversionPair) bool {
		_, safe := conversionPairs[CategorySafeNumber][p]
		return !safe
	})
	conversionPairs[CategoryTextNumber] = bidirectional(KindEnum.IsNumber, KindString)
	conversionPairs[CategoryNumericBool] = bidirectional(KindEnum.IsInteger, KindBool)
	conversionPairs[CategoryTextualBool] = bidirectional(is(KindString), KindBool)
	conversionPairs[CategoryDatetime] = bidirectional(is(KindString), KindTime)
	conversionPairs[CategoryTimestamp] = bidirectional(KindEnum.IsInteger, KindTime)
	conversionPairs[CategoryDuration] = bidirectional(is(KindString), KindDuration)
	conversionPairs[CategoryNanoseconds] = bidirectional(func(k KindEnum) bool {
		return k.IsInteger() && k != KindUint64
	}, KindDuration)
	conversionPairs[CategoryIdentifier] = bidirectional(is(KindString), KindUUID)

	enums := bidirectional(is(KindString), KindPrimitiveEnum)
	enums[ConversionPair{KindPrimitiveEnum, KindPrimitiveEnum}] = struct{}{}
	for pair := range bidirectional(KindEnum.IsInteger, KindPrimitiveEnum) {
		enums[pair] = struct{}{}
	}
	conversionPairs[CategoryEnumString] = enums
}

// Allows reports whether any of the selected categories permits converting
// values of kind from into kind to.
func (c CategoryEnum) Allows(from, to KindEnum) bool {
	pair := ConversionPair{From: from, To: to}
	for category, pairs := range conversionPairs {
		if c&category == 0 {
			continue
		}

		if _, ok := pairs[pair]; ok {
			return true
		}
	}

	return false
}

func is(kind KindEnum) func(KindEnum) bool {
	return func(k KindEnum) bool { return k == kind }
}

func pairsOf(from, to func(KindEnum) bool, keep func(ConversionPair) bool) map[ConversionPair]struct{} {
	pairs := map[ConversionPair]struct{}{}
	for fromKind := KindEnum(1); int(fromKind) < KindTotal; fromKind++ {
		if !from(fromKind) {
			continue
		}

		for toKind := KindEnum(1); int(toKind) < KindTotal; toKind++ {
			pair := ConversionPair{fromKind, toKind}
			if to(toKind) && keep(pair) {
				pairs[pair] = struct{}{}
			}
		}
	}

	return pairs
}

func bidirectional(side func(KindEnum) bool, other KindEnum) map[ConversionPair]struct{} {
	pairs := map[ConversionPair]struct{}{}
	for kind := KindEnum(1); int(kind) < KindTotal; kind++ {
		if !side(kind) {
			continue
		}

		pairs[ConversionPair{kind, other}] = struct{}{}
		pairs[ConversionPair{other, kind}] = struct{}{}
	}

	return pairs
}

func safeNumberConversionPairs() map[ConversionPair]struct{} {
	return map[ConversionPair]struct{}{
		{KindInt, KindInt}:   {}, // int can be any wide from 32 upto 64
		{KindInt, KindInt64}: {},

		{KindInt8, KindInt}:     {}, // int8 can be safely converted to any signed int
		{KindInt8, KindInt8}:    {},
		{KindInt8, KindInt16}:   {},
		{KindInt8, KindInt32}:   {},
		{KindInt8, KindInt64}:   {},
		{KindInt8, KindFloat32}: {},
		{KindInt8, KindFloat64}: {},

		{KindInt16, KindInt}:     {},
		{KindInt16, KindInt16}:   {},
		{KindInt16, KindInt32}:   {},
		{KindInt16, KindInt64}:   {},
		{KindInt16, KindFloat32}: {},
		{KindInt16, KindFloat64}: {},

		{KindInt32, KindInt}:     {},
		{KindInt32, KindInt32}:   {},
		{KindInt32, KindInt64}:   {},
		{KindInt32, KindFloat64}: {}, // int32 is wider than float32 mantissa

		{KindInt64, KindInt64}: {},

		{KindUint, KindUint}:   {},
		{KindUint, KindUint64}: {},

		{KindUint8, KindUint}:    {},
		{KindUint8, KindUint8}:   {},
		{KindUint8, KindUint16}:  {},
		{KindUint8, KindUint32}:  {},
		{KindUint8, KindUint64}:  {},
		{KindUint8, KindInt}:     {},
		{KindUint8, KindInt16}:   {},
		{KindUint8, KindInt32}:   {},
		{KindUint8, KindInt64}:   {},
		{KindUint8, KindFloat32}: {},
		{KindUint8, KindFloat64}: {},

		{KindUint16, KindUint}:    {},
		{KindUint16, KindUint16}:  {},
		{KindUint16, KindUint32}:  {},
		{KindUint16, KindUint64}:  {},
		{KindUint16, KindInt}:     {},
		{KindUint16, KindInt32}:   {},
		{KindUint16, KindInt64}:   {},
		{KindUint16, KindFloat32}: {},
		{KindUint16, KindFloat64}: {},

		{KindUint32, KindUint32}:  {},
		{KindUint32, KindUint64}:  {},
		{KindUint32, KindInt64}:   {},
		{KindUint32, KindFloat64}: {},

		{KindUint64, KindUint64}: {},

		{KindFloat32, KindFloat32}: {},
		{KindFloat32, KindFloat64}: {},

		{KindFloat64, KindFloat64}: {},
	}
}
