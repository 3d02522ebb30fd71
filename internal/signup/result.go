package signup

import "github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"

// Outcome names a successful registration.
type Outcome string

const (
	OutcomeNone                Outcome = ""
	OutcomeProfileUpgraded     Outcome = "profile_upgraded"
	OutcomePendingConfirmation Outcome = "signup_pending_confirmation"
	OutcomeSupporterRegistered Outcome = "supporter_registered"
)

// Kind classifies a failed registration.
type Kind string

const (
	KindNone       Kind = "none"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindExternal   Kind = "external"
)

// Result is the answer to one registration request. Exactly one of Outcome
// (on success) or a failure Kind is meaningful. Message is user facing.
type Result struct {
	Outcome Outcome
	Kind    Kind
	Code    string
	Message string
}

// Success reports whether the registration went through.
func (r Result) Success() bool { return r.Kind == KindNone }

// Err returns the failure as an *apperr.Error, or nil on success.
func (r Result) Err() error {
	switch r.Kind {
	case KindNone:
		return nil
	case KindValidation:
		return apperr.Validation(r.Code, r.Message)
	case KindConflict:
		return apperr.Conflict(r.Code, r.Message)
	default:
		return apperr.New(apperr.KindExternal, r.Code, r.Message)
	}
}

func succeeded(outcome Outcome, msg string) Result {
	return Result{Outcome: outcome, Kind: KindNone, Message: msg}
}

func failed(kind Kind, code, msg string) Result {
	return Result{Kind: kind, Code: code, Message: msg}
}

// Reason codes.
const (
	CodeMissingFields      = "missing_fields"
	CodePasswordTooShort   = "password_too_short"
	CodeInvalidCPF         = "invalid_cpf"
	CodeEmailRegistered    = "email_registered"
	CodeCPFTaken           = "cpf_taken"
	CodeEmailOtherMethod   = "email_other_method"
	CodeIdentityCreate     = "identity_create_failed"
	CodeProfileUpdate      = "profile_update_failed"
	CodeSignupFailed       = "signup_failed"
	CodeStoreUnavailable   = "store_unavailable"
	CodeRegistrationFailed = "registration_failed"
)

const (
	msgMissingFields          = "Por favor, preencha todos os campos essenciais."
	msgMissingSupporterFields = "Por favor, preencha todos os campos obrigatórios."
	msgPasswordTooShort       = "A senha deve ter no mínimo 6 caracteres."
	msgInvalidCPF             = "CPF inválido."
	msgLeaderExists           = "Este e-mail já está cadastrado como um líder ou administrador."
	msgEmailRegistered        = "Este e-mail já está cadastrado."
	msgCPFTaken               = "Este CPF já está cadastrado."
	msgEmailOtherMethod       = "Este e-mail já está em uso por outro método de login."
	msgIdentityCreate         = "Falha ao criar autenticação."
	msgProfileUpdate          = "Falha ao atualizar perfil para líder."
	msgSignupFailed           = "Falha ao cadastrar."
	msgStoreUnavailable       = "Não foi possível concluir o cadastro. Tente novamente."
	msgRegistrationFailed     = "Ocorreu um erro ao realizar o cadastro."
	msgProfileUpgraded        = "Seu perfil de apoiador foi atualizado para Líder com sucesso! Você já pode fazer login."
	msgPendingConfirmation    = "Cadastro realizado com sucesso! Verifique seu e-mail para confirmação."
	msgSupporterRegistered    = "Cadastro realizado com sucesso! Obrigado por seu apoio."
)
