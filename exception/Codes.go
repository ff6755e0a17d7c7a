package exception

const MissingAccessToken = "100"
const MissingAccessTokenMsg = "Request doesn't contain an access token"

const IncorrectParamType = "110"
const IncorrectParamTypeMsg = "$param parameter should be $type"

const InvalidParameterValue = "111"
const InvalidParameterValueMsg = "Value '$value' is not allowed for parameter $param"

const RequiredParamsMissing = "112"
const RequiredParamsMissingMsg = "Required parameters are missing: $params"

const BadRequestBody = "113"
const BadRequestBodyMsg = "Failed to decode body"

const UpstreamApiError = "200"
const UpstreamApiErrorMsg = "Upstream API request to $endpoint failed with status $status"

const UnknownResourceType = "210"
const UnknownResourceTypeMsg = "Unable to expand resource of type $type"

const MalformedManifest = "220"
const MalformedManifestMsg = "Derivative manifest has unexpected shape: $reason"

const SignedCookiesMissing = "230"
const SignedCookiesMissingMsg = "Upstream response for derivative $derivative contains no signed cookies"

const EmptyFileSet = "240"
const EmptyFileSetMsg = "File set for bulk download is empty"
