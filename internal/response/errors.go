package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrUsernameTaken      ErrCode = "USERNAME_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Questionnaire tree ────────────────────────────────────────────
	ErrPathNotFound     ErrCode = "PATH_NOT_FOUND"
	ErrMalformedPath    ErrCode = "MALFORMED_PATH"
	ErrInvalidMove      ErrCode = "INVALID_MOVE"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	ErrInvalidTree      ErrCode = "INVALID_TREE"

	// ─── Cases ─────────────────────────────────────────────────────────
	ErrFolderNotFound ErrCode = "FOLDER_NOT_FOUND"
	ErrImageNotFound  ErrCode = "IMAGE_NOT_FOUND"
	ErrNoCaseMatches  ErrCode = "NO_CASE_MATCHES"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrInvalidDicom    ErrCode = "INVALID_DICOM"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Identifiant ou mot de passe incorrect."
	case ErrSessionInvalidated:
		return "Votre session a expiré. Veuillez vous reconnecter."
	case ErrTokenRequired:
		return "Jeton d'authentification requis."
	case ErrTokenInvalid:
		return "Jeton d'authentification invalide."
	case ErrTokenExpired:
		return "Jeton d'authentification expiré."
	case ErrUsernameTaken:
		return "Ce nom d'utilisateur est déjà utilisé."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Vous n'avez pas accès à cette ressource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation échouée. Vérifiez votre saisie."
	case ErrInvalidID:
		return "Format d'identifiant invalide."
	case ErrInvalidPayload:
		return "Contenu de la requête invalide."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Ressource introuvable."
	case ErrConflict:
		return "La ressource existe déjà."

	// ─── Questionnaire tree ────────────────────────────────────────────
	case ErrPathNotFound:
		return "Aucun élément à ce chemin."
	case ErrMalformedPath:
		return "Chemin mal formé."
	case ErrInvalidMove:
		return "Déplacement impossible entre ces deux positions."
	case ErrQuestionNotFound:
		return "Question introuvable dans ce questionnaire."
	case ErrInvalidTree:
		return "Arborescence de questions invalide."

	// ─── Cases ─────────────────────────────────────────────────────────
	case ErrFolderNotFound:
		return "Dossier introuvable pour ce cas."
	case ErrImageNotFound:
		return "Image introuvable dans ce cas."
	case ErrNoCaseMatches:
		return "Aucun cas ne correspond à ces critères."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "Un fichier est requis."
	case ErrUnsupportedFile:
		return "Type de fichier non pris en charge."
	case ErrFileTooLarge:
		return "Le fichier dépasse la taille autorisée."
	case ErrInvalidDicom:
		return "Fichier DICOM illisible."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Trop de requêtes. Réessayez plus tard."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Erreur interne du serveur."
	default:
		return "Une erreur inattendue est survenue."
	}
}
