package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeCampaignIDRequired         = "CAMPAIGN_ID_REQUIRED"
	CodeCampaignAlreadyInitialized = "CAMPAIGN_ALREADY_INITIALIZED"
	CodeCampaignNotInitialized     = "CAMPAIGN_NOT_INITIALIZED"
	CodeSponsorIDRequired          = "SPONSOR_ID_REQUIRED"
	CodeRewardAssetRequired        = "REWARD_ASSET_REQUIRED"
	CodeCapacityInvalid            = "CAPACITY_INVALID"
	CodeStakeAmountInvalid         = "STAKE_AMOUNT_INVALID"
	CodeParticipantIDRequired      = "PARTICIPANT_ID_REQUIRED"
	CodeRosterFull                 = "ROSTER_FULL"
	CodeDuplicateParticipant       = "DUPLICATE_PARTICIPANT"
	CodeParticipantNotFound        = "PARTICIPANT_NOT_FOUND"
	CodeParticipantIsCustodian     = "PARTICIPANT_IS_CUSTODIAN"
	CodeEmptyRoster                = "EMPTY_ROSTER"
	CodeAlreadyDistributed         = "ALREADY_DISTRIBUTED"
	CodeTransferFailed             = "TRANSFER_FAILED"
	CodeFundingDisabled            = "FUNDING_DISABLED"
	CodeFundingInvalid             = "FUNDING_INVALID"
	CodeAmountOutOfRange           = "AMOUNT_OUT_OF_RANGE"
	CodeEventFilterInvalid         = "EVENT_FILTER_INVALID"
	CodeCommandRejected            = "COMMAND_REJECTED"
	CodeProofInvalid               = "PROOF_INVALID"
	CodeProofExpired               = "PROOF_EXPIRED"
	CodeProofMismatch              = "PROOF_MISMATCH"
	CodeProofReused                = "PROOF_REUSED"
	CodeNotFound                   = "NOT_FOUND"
)

var enUSMessages = map[Code]string{
	// Campaign errors
	CodeCampaignIDRequired:         "Campaign ID is required",
	CodeCampaignAlreadyInitialized: "Campaign {{.CampaignID}} is already initialized",
	CodeCampaignNotInitialized:     "Campaign {{.CampaignID}} has not been initialized",
	CodeSponsorIDRequired:          "Sponsor account is required",
	CodeRewardAssetRequired:        "Reward asset is required",
	CodeCapacityInvalid:            "Capacity must be at least 1",
	CodeStakeAmountInvalid:         "Stake amount is out of range",

	// Roster errors
	CodeParticipantIDRequired:  "Participant ID is required",
	CodeRosterFull:             "Campaign roster is full ({{.Capacity}} participants)",
	CodeDuplicateParticipant:   "Participant {{.ParticipantID}} has already joined",
	CodeParticipantNotFound:    "Participant {{.ParticipantID}} is not on the roster",
	CodeParticipantIsCustodian: "Custody accounts cannot sponsor or join a campaign",

	// Distribution errors
	CodeEmptyRoster:        "Cannot distribute rewards to an empty roster",
	CodeAlreadyDistributed: "Rewards for this campaign were already distributed",

	// Transfer errors
	CodeTransferFailed:   "Transfer from {{.From}} to {{.To}} failed",
	CodeFundingDisabled:  "Account funding is disabled",
	CodeFundingInvalid:   "Funding request is invalid",
	CodeAmountOutOfRange: "Amount is out of range",

	CodeEventFilterInvalid: "Event filter is invalid",
	CodeCommandRejected:    "The ledger rejected this request",

	// Proof errors
	CodeProofInvalid:  "Proof is invalid",
	CodeProofExpired:  "Proof has expired",
	CodeProofMismatch: "Proof {{.Field}} does not match",
	CodeProofReused:   "Proof was already used; request a new one",

	// Storage errors
	CodeNotFound: "The requested resource was not found",
}

var ptBRMessages = map[Code]string{
	CodeCampaignIDRequired:         "O ID da campanha é obrigatório",
	CodeCampaignAlreadyInitialized: "A campanha {{.CampaignID}} já foi inicializada",
	CodeCampaignNotInitialized:     "A campanha {{.CampaignID}} não foi inicializada",
	CodeSponsorIDRequired:          "A conta do patrocinador é obrigatória",
	CodeRewardAssetRequired:        "O ativo de recompensa é obrigatório",
	CodeCapacityInvalid:            "A capacidade deve ser pelo menos 1",
	CodeStakeAmountInvalid:         "O valor do depósito está fora do intervalo",

	CodeParticipantIDRequired:  "O ID do participante é obrigatório",
	CodeRosterFull:             "A lista da campanha está cheia ({{.Capacity}} participantes)",
	CodeDuplicateParticipant:   "O participante {{.ParticipantID}} já entrou",
	CodeParticipantNotFound:    "O participante {{.ParticipantID}} não está na lista",
	CodeParticipantIsCustodian: "Contas de custódia não podem patrocinar ou entrar em uma campanha",

	CodeEmptyRoster:        "Não é possível distribuir recompensas para uma lista vazia",
	CodeAlreadyDistributed: "As recompensas desta campanha já foram distribuídas",

	CodeTransferFailed:   "A transferência de {{.From}} para {{.To}} falhou",
	CodeFundingDisabled:  "O financiamento de contas está desativado",
	CodeFundingInvalid:   "A solicitação de financiamento é inválida",
	CodeAmountOutOfRange: "O valor está fora do intervalo",

	CodeEventFilterInvalid: "O filtro de eventos é inválido",
	CodeCommandRejected:    "O livro-razão rejeitou esta solicitação",

	CodeProofInvalid:  "A prova é inválida",
	CodeProofExpired:  "A prova expirou",
	CodeProofMismatch: "O campo {{.Field}} da prova não corresponde",
	CodeProofReused:   "A prova já foi usada; solicite uma nova",

	CodeNotFound: "O recurso solicitado não foi encontrado",
}
