package boxmint

import "errors"

var (
	ErrNotInitialized     = errors.New("boxmint: ledger not initialized")
	ErrAlreadyInitialized = errors.New("boxmint: ledger already initialized")
	ErrUnauthorized       = errors.New("boxmint: unauthorized")

	ErrInvalidQuantity  = errors.New("boxmint: invalid quantity")
	ErrSoldOut          = errors.New("boxmint: sold out")
	ErrMathOverflow     = errors.New("boxmint: math overflow")
	ErrInvalidMaxSupply = errors.New("boxmint: invalid max supply")
	ErrInvalidMaxPerTx  = errors.New("boxmint: invalid max per transaction")
	ErrInvalidPrice     = errors.New("boxmint: invalid price")
	ErrInvalidFeeBand   = errors.New("boxmint: invalid delivery fee band")
	ErrInvalidFigureCap = errors.New("boxmint: invalid figure id cap")
	ErrNameTooLong      = errors.New("boxmint: name prefix too long")
	ErrSymbolTooLong    = errors.New("boxmint: symbol too long")
	ErrURITooLong       = errors.New("boxmint: uri base too long")

	ErrBadDerivation = errors.New("boxmint: address does not match derivation")
	ErrAddressInUse  = errors.New("boxmint: derived address already in use")

	ErrVoucherExpired    = errors.New("boxmint: voucher expired")
	ErrVoucherSigner     = errors.New("boxmint: voucher signer is not the cosigner")
	ErrVoucherMismatch   = errors.New("boxmint: voucher does not match the request")
	ErrFigureIDRange     = errors.New("boxmint: figure id out of range")
	ErrDuplicateFigureID = errors.New("boxmint: duplicate figure id")
	ErrNotGenuine        = errors.New("boxmint: asset is not a genuine collection item")

	ErrPendingExists   = errors.New("boxmint: pending reveal already exists")
	ErrPendingNotFound = errors.New("boxmint: pending reveal not found")
	ErrPendingMismatch = errors.New("boxmint: pending reveal does not match request")

	ErrDeliveryExists   = errors.New("boxmint: delivery record already exists")
	ErrDeliveryNotFound = errors.New("boxmint: delivery record not found")
	ErrFeeOutOfBand     = errors.New("boxmint: delivery fee outside configured band")
	ErrTooManyItems     = errors.New("boxmint: too many delivery items")

	ErrInsufficientFunds = errors.New("boxmint: insufficient funds")
	ErrURISegment        = errors.New("boxmint: uri base is missing the boxes segment")
)
