package pdf

import "errors"

// Sentinel errors surfaced in per-document failure messages.
var (
	ErrEmptyDocument = errors.New("document vide")
	ErrNotPDF        = errors.New("le fichier n'est pas un PDF")
	ErrFileTooLarge  = errors.New("fichier trop volumineux")
	ErrDecode        = errors.New("décodage PDF impossible")
	ErrEncrypted     = errors.New("document protégé par mot de passe")
	ErrTimeout       = errors.New("délai d'extraction dépassé")
)
